package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientSeats is returned when a seat decrement would drop
	// seats_available below zero.
	ErrInsufficientSeats = errors.New("insufficient seats available")

	// ErrSeatsExceedTotal is returned when a seat restore would push
	// seats_available above seats_total.
	ErrSeatsExceedTotal = errors.New("seat restore exceeds total seats")
)
