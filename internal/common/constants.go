// Package common contains common constants and variables used across services
package common

const (
	DefaultSlippageBps uint16 = 50
	// MaxSlippageBps is the highest tolerance a caller may request; 10000 would allow zero output
	MaxSlippageBps uint16 = 9999
)
