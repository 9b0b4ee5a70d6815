package compiler

// Buffer is a growable store of fixed-stride records. Tokens and AST nodes
// both live in one. Each record is four int32 words:
//
//	word 0: kind (top 8 bits) | lenBytes (low 24 bits)
//	word 1: startByte
//	word 2: payload1
//	word 3: payload2
//
// Records are addressed by index. Growing the buffer copies the words into a
// larger array, so an index handed out earlier stays valid for backpatching.
type Buffer struct {
	words []int32
	count int
}

const (
	recordStride   = 4
	kindShift      = 24
	lenMask        = 1<<kindShift - 1
	maxRecordLen   = lenMask
	initialRecords = 64
)

func newBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = initialRecords
	}
	return &Buffer{words: make([]int32, capacity*recordStride)}
}

// Len returns the number of records.
func (b *Buffer) Len() int { return b.count }

// Append adds a record and returns its index.
func (b *Buffer) Append(kind uint8, startByte, lenBytes int, payload1, payload2 int32) int {
	if (b.count+1)*recordStride > len(b.words) {
		b.grow()
	}
	j := b.count * recordStride
	b.words[j] = int32(kind)<<kindShift | int32(lenBytes&lenMask)
	b.words[j+1] = int32(startByte)
	b.words[j+2] = payload1
	b.words[j+3] = payload2
	b.count++
	return b.count - 1
}

// AppendAll copies every record of other onto the end of b and returns the
// index the first copied record received.
func (b *Buffer) AppendAll(other *Buffer) int {
	offset := b.count
	for (b.count+other.count)*recordStride > len(b.words) {
		b.grow()
	}
	copy(b.words[b.count*recordStride:], other.words[:other.count*recordStride])
	b.count += other.count
	return offset
}

// grow doubles the capacity.
func (b *Buffer) grow() {
	capacity := len(b.words) * 2
	if capacity == 0 {
		capacity = initialRecords * recordStride
	}
	words := make([]int32, capacity)
	copy(words, b.words)
	b.words = words
}

func (b *Buffer) Kind(i int) uint8 {
	return uint8(uint32(b.words[i*recordStride]) >> kindShift)
}

func (b *Buffer) LenBytes(i int) int {
	return int(b.words[i*recordStride] & lenMask)
}

func (b *Buffer) StartByte(i int) int {
	return int(b.words[i*recordStride+1])
}

func (b *Buffer) Payload1(i int) int32 {
	return b.words[i*recordStride+2]
}

func (b *Buffer) Payload2(i int) int32 {
	return b.words[i*recordStride+3]
}

// Int64 joins the two payload words into one 64-bit value.
func (b *Buffer) Int64(i int) int64 {
	return int64(b.Payload1(i))<<32 | int64(uint32(b.Payload2(i)))
}

func (b *Buffer) SetKind(i int, kind uint8) {
	j := i * recordStride
	b.words[j] = int32(kind)<<kindShift | b.words[j]&lenMask
}

func (b *Buffer) SetLenBytes(i int, lenBytes int) {
	j := i * recordStride
	b.words[j] = b.words[j]&^lenMask | int32(lenBytes&lenMask)
}

func (b *Buffer) SetPayload1(i int, v int32) { b.words[i*recordStride+2] = v }

func (b *Buffer) SetPayload2(i int, v int32) { b.words[i*recordStride+3] = v }

// splitInt64 is the inverse of Int64.
func splitInt64(v int64) (hi, lo int32) {
	return int32(v >> 32), int32(uint32(v))
}
