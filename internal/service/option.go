package service

import "errors"

type Option func(*Service) error

// WithOrderIDs functionally configures the service with the generator used
// when a caller does not supply an order id.
func WithOrderIDs(next func() string) Option {
	return func(s *Service) error {
		if next == nil {
			return errors.New("nil order id generator")
		}
		s.newOrderID = next
		return nil
	}
}
