// Package publisher broadcasts schedule mutation events over NATS.
package publisher
