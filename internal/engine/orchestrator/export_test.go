package orchestrator

// FlightKey exposes flightKey for tests.
var FlightKey = flightKey
