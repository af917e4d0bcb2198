package pagetable

// A Translator splits a linear word index into a page number and an offset
// within the page. Frame sizes are powers of two.
type Translator struct {
	log2FrameSize uint64
}

// NewTranslator creates a translator for frames of 2^log2FrameSize words.
func NewTranslator(log2FrameSize uint64) Translator {
	return Translator{log2FrameSize: log2FrameSize}
}

// FrameSize returns the number of words in a frame.
func (t Translator) FrameSize() uint64 {
	return 1 << t.log2FrameSize
}

// PageNumber returns floor(index / frameSize).
func (t Translator) PageNumber(index uint64) int {
	return int(index >> t.log2FrameSize)
}

// Offset returns index mod frameSize.
func (t Translator) Offset(index uint64) uint64 {
	return index & (t.FrameSize() - 1)
}

// Address is the inverse of PageNumber and Offset.
func (t Translator) Address(page int, offset uint64) uint64 {
	return uint64(page)<<t.log2FrameSize | offset
}
