// Package engine holds the pricing and allocation rules: turning a traveller
// group into rooms, picking the cheapest seasonal tariff per tier and room
// type, and evaluating per-leg fee formulas.
//
// Every function here is pure. Reference data is passed in explicitly and
// never modified, so calls are safe from concurrent requests.
package engine
