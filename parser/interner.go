package parser

// Interner deduplicates the strings that repeat on almost every row of an
// export: asset symbols, currency codes and transaction type labels.
type Interner struct {
	pool map[string]string
}

// NewInterner creates an interner with room for capacity distinct strings.
func NewInterner(capacity int) *Interner {
	return &Interner{
		pool: make(map[string]string, capacity),
	}
}

// Intern returns the canonical instance of s.
func (i *Interner) Intern(s string) string {
	if interned, ok := i.pool[s]; ok {
		return interned
	}
	i.pool[s] = s
	return s
}

// Size returns the number of distinct strings seen.
func (i *Interner) Size() int {
	return len(i.pool)
}
