package entities

import "time"

// Choice is a single answer option of a poll, with its running vote count.
type Choice struct {
	ID         int64  `json:"id"`
	ChoiceText string `json:"choice_text"`
	VotesCount int    `json:"votes_count"`
}

// Poll is a poll entity as served by the remote backend. It is read-only
// on the client side: all mutations go through the gateway and return a
// fresh Poll.
type Poll struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Owner           string     `json:"owner"`
	IsAnonymous     bool       `json:"is_anonymous"`
	MultipleAnswers bool       `json:"multiple_answers"`
	EndDate         *time.Time `json:"end_date"`
	Choices         []Choice   `json:"choices"`
	UserVotes       []int64    `json:"user_votes,omitempty"`
}

// TotalVotes returns the number of votes cast across all choices.
func (p Poll) TotalVotes() int {
	total := 0
	for _, c := range p.Choices {
		total += c.VotesCount
	}
	return total
}

// HasVotes reports whether any vote has been cast on the poll.
func (p Poll) HasVotes() bool {
	return p.TotalVotes() > 0
}

// Shares returns the fraction of all cast votes held by each choice,
// keyed by choice id. With multiple answers enabled the fractions can
// exceed the per-voter share; the denominator is always the total number
// of votes cast. An empty poll yields zero shares.
func (p Poll) Shares() map[int64]float64 {
	shares := make(map[int64]float64, len(p.Choices))
	total := p.TotalVotes()
	for _, c := range p.Choices {
		if total == 0 {
			shares[c.ID] = 0
			continue
		}
		shares[c.ID] = float64(c.VotesCount) / float64(total)
	}
	return shares
}

// IsClosed reports whether the poll's end date has passed.
func (p Poll) IsClosed(now time.Time) bool {
	return p.EndDate != nil && now.After(*p.EndDate)
}

// IsOwnedBy reports whether the given client identity owns the poll.
func (p Poll) IsOwnedBy(clientID string) bool {
	return p.Owner != "" && p.Owner == clientID
}
