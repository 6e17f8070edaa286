package types

// Corpus is the full collection of cases for a batch, kept in insertion
// order and indexed by case number. Cases refer to each other only by
// number (see Case.OriginalCase).
type Corpus struct {
	order    []string
	byNumber map[string]*Case
}

// NewCorpus builds a corpus from cases. A later case with a number already
// present replaces the earlier record but keeps its position.
func NewCorpus(cases []*Case) *Corpus {
	corpus := &Corpus{
		byNumber: make(map[string]*Case, len(cases)),
	}
	for _, c := range cases {
		corpus.Put(c)
	}
	return corpus
}

// Put inserts or replaces a case.
func (c *Corpus) Put(record *Case) {
	if record == nil {
		return
	}
	if c.byNumber == nil {
		c.byNumber = make(map[string]*Case)
	}
	if _, exists := c.byNumber[record.Number]; !exists {
		c.order = append(c.order, record.Number)
	}
	c.byNumber[record.Number] = record
}

// Get returns the case with the given number.
func (c *Corpus) Get(number string) (*Case, bool) {
	record, ok := c.byNumber[number]
	return record, ok
}

// Cases returns all cases in corpus order.
func (c *Corpus) Cases() []*Case {
	cases := make([]*Case, 0, len(c.order))
	for _, number := range c.order {
		cases = append(cases, c.byNumber[number])
	}
	return cases
}

// Len returns the number of cases.
func (c *Corpus) Len() int {
	return len(c.order)
}
