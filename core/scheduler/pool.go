package scheduler

import "time"

// Slot is one bookable dealer time.
type Slot struct {
	Dealer string    `json:"dealer"`
	Time   time.Time `json:"time"`
}

// Pool is the availability of every dealer for one run. It is immutable once
// built.
type Pool struct {
	dealers []string
	slots   map[string][]time.Time
}

// BuildPool returns, for each dealer, a slot at every configured hour on each
// of the days following base. Minutes and seconds are zeroed.
func BuildPool(cfg SchedulerConfig, base time.Time) *Pool {
	times := make([]time.Time, 0, cfg.Days*len(cfg.Hours))
	for day := 1; day <= cfg.Days; day++ {
		for _, h := range cfg.Hours {
			times = append(times, time.Date(base.Year(), base.Month(), base.Day()+day, h, 0, 0, 0, base.Location()))
		}
	}
	p := &Pool{
		dealers: append([]string(nil), cfg.Dealers...),
		slots:   make(map[string][]time.Time, len(cfg.Dealers)),
	}
	for _, d := range p.dealers {
		p.slots[d] = append([]time.Time(nil), times...)
	}
	return p
}

// Dealers returns the dealer names in configuration order.
func (p *Pool) Dealers() []string {
	return append([]string(nil), p.dealers...)
}

// Slots returns a copy of the dealer's slots in chronological order.
func (p *Pool) Slots(dealer string) []time.Time {
	return append([]time.Time(nil), p.slots[dealer]...)
}

// All lists every slot, dealer by dealer.
func (p *Pool) All() []Slot {
	var out []Slot
	for _, d := range p.dealers {
		for _, t := range p.slots[d] {
			out = append(out, Slot{Dealer: d, Time: t})
		}
	}
	return out
}

// Size returns the total number of slots.
func (p *Pool) Size() int {
	n := 0
	for _, s := range p.slots {
		n += len(s)
	}
	return n
}
