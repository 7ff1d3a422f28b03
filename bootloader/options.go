package bootloader

import "time"

// Config holds the communicator configuration.
type Config struct {
	// Identity selects which bus devices are recognized and in which mode.
	Identity Identity

	// Serial restricts discovery to one serial number when non-empty.
	Serial string

	// SwitchTimeout bounds the wait for the device to reappear after a
	// mode switch command.
	SwitchTimeout time.Duration

	// PollInterval is the delay between discovery attempts while waiting.
	PollInterval time.Duration

	// PageDelay is slept after every page write.
	PageDelay time.Duration

	// ProgressCallback is called after every page written (optional)
	ProgressCallback ProgressCallback
}

func defaultConfig() Config {
	return Config{
		Identity:      DefaultIdentity,
		SwitchTimeout: 5 * time.Second,
		PollInterval:  100 * time.Millisecond,
	}
}

// Option is a functional option for configuring the Communicator.
type Option func(*Config)

// WithIdentity overrides the vendor and product IDs.
func WithIdentity(id Identity) Option {
	return func(c *Config) {
		c.Identity = id
	}
}

// WithSerial restricts discovery to the device with the given serial number.
func WithSerial(serial string) Option {
	return func(c *Config) {
		c.Serial = serial
	}
}

// WithSwitchTimeout sets how long SwitchMode waits for the device.
// Non-positive values are ignored.
func WithSwitchTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SwitchTimeout = timeout
		}
	}
}

// WithPollInterval sets the bus polling interval used by SwitchMode.
// Non-positive values are ignored.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithPageDelay inserts a delay after each page write.
func WithPageDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.PageDelay = delay
		}
	}
}

// WithProgressCallback sets a callback that tracks flashing progress.
//
// Example:
//
//	c := bootloader.New(bus,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("page %d/%d\n", p.Current, p.Total)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}
