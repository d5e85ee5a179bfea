package domain

// Buffer is an ordered, append-only sequence of records waiting to be
// flushed. It is owned by a single goroutine and is not safe for
// concurrent use.
type Buffer struct {
	records []LogRecord
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{records: make([]LogRecord, 0, 8)}
}

// Append adds a record at the end of the buffer.
func (b *Buffer) Append(r LogRecord) {
	b.records = append(b.records, r)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	return len(b.records)
}

// Empty returns true if the buffer holds no records.
func (b *Buffer) Empty() bool {
	return len(b.records) == 0
}

// Records returns a copy of the buffered records in append order.
func (b *Buffer) Records() []LogRecord {
	out := make([]LogRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Detach hands the current contents to the caller and leaves the buffer
// empty. The returned slice is not shared with the buffer.
func (b *Buffer) Detach() []LogRecord {
	out := b.records
	b.records = make([]LogRecord, 0, cap(out))
	return out
}
