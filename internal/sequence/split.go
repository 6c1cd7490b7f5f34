package sequence

// splitMark cuts mark into a prefix of length cells and the remainder. Ids,
// endpoints and cell ids of the remainder are offset by length.
func splitMark(mark Mark, length int) (Mark, Mark) {
	remainder := mark.Count - length
	if length < 1 || remainder < 1 {
		fail("Unexpected mark split length ", length, " for ", mark)
	}
	assertInvariant(mark.Changes == nil, "Marks with node changes cannot be split")

	first := mark
	first.Count = length
	second := mark
	second.Count = remainder
	second.Effect = splitEffect(mark.Effect, length)
	second.CellID = offsetCellId(mark.CellID, length)
	return first, second
}

func splitEffect(effect MarkEffect, length int) MarkEffect {
	switch e := effect.(type) {
	case nil:
		return nil
	case Noop:
		return e
	case AttachAndDetach:
		return AttachAndDetach{
			Attach: splitEffect(e.Attach, length).(Attach),
			Detach: splitEffect(e.Detach, length).(Detach),
		}
	case identified:
		return e.offsetBy(length)
	default:
		unreachableCase(effect)
		return nil
	}
}
