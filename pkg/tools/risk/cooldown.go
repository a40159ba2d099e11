package risk

import "time"

// CooldownHandler reports whether a new position may be opened at
// currentTime given the time of the last opened position.
type CooldownHandler func(lastTradeTime, currentTime time.Time) bool

func WithCooldown(h CooldownHandler) Option {
	return func(m *Manager) {
		if m.cooldownHandler != nil {
			panic("cooldown handler already set")
		}
		m.cooldownHandler = h
	}
}

// WithCooldownPeriod blocks new positions until period passed since the last one.
func WithCooldownPeriod(period time.Duration) Option {
	return WithCooldown(func(lastTradeTime, currentTime time.Time) bool {
		return currentTime.Sub(lastTradeTime) > period
	})
}

func WithOneHourCooldown() Option {
	return WithCooldownPeriod(time.Hour)
}
