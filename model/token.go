package model

// Token is one row of an OCR token table.
// Conf is nil for rows without a confidence score.
type Token struct {
	Level    int      `json:"level"`
	PageNum  int      `json:"page_num"`
	BlockNum int      `json:"block_num"`
	ParNum   int      `json:"par_num"`
	LineNum  int      `json:"line_num"`
	WordNum  int      `json:"word_num"`
	Left     int      `json:"left"`
	Top      int      `json:"top"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Conf     *float64 `json:"conf"`
	Text     string   `json:"text"`
}

// TokenTable is the ordered token list of one page, in reading order.
type TokenTable []Token

// Confidence returns the confidence score and whether it is set.
func (t Token) Confidence() (float64, bool) {
	if t.Conf == nil {
		return 0, false
	}
	return *t.Conf, true
}

// LineKey groups tokens of the same text line.
type LineKey struct {
	Page  int
	Block int
	Par   int
	Line  int
}

// Line returns the key of the line the token belongs to.
func (t Token) Line() LineKey {
	return LineKey{Page: t.PageNum, Block: t.BlockNum, Par: t.ParNum, Line: t.LineNum}
}

// Conf is a convenience for building tokens with a confidence.
func Conf(v float64) *float64 {
	return &v
}
