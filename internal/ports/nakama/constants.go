package nakama

// MatchNameCardRoom is the authoritative match handler name registered
// with Nakama. The match is a relay: the hosting peer simulates, Nakama
// moves frames.
const MatchNameCardRoom = "cardroom_relay"

// maxSeats caps a relay room; individual engines enforce their own limits.
const maxSeats = 9

// Op codes for relay frames and room events.
const (
	// Peer -> relay
	OpIntent   int64 = 1 // forwarded to the host peer
	OpSnapshot int64 = 2 // host only; broadcast to the room
	OpReject   int64 = 3 // host only; directed to one peer

	// Relay -> peers
	OpRoster int64 = 101 // seats, names and host designation
)
