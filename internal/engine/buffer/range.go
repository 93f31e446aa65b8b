package buffer

// Range is the half-open byte range [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// Len returns the length in bytes.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

// IsEmpty reports whether the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid reports whether Start <= End.
func (r Range) IsValid() bool {
	return r.Start <= r.End
}
