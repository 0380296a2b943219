// Package session provides the game session store for the relay.
//
// The session package implements:
//   - Session creation with unique, human-shareable identifiers
//   - The per-connection affiliation index (unaffiliated, host, requesting, member)
//   - The join request handshake: issuing codes and resolving them
//   - Removal primitives used when connections disconnect
//
// Core Types:
//
// Store owns every live Session and the affiliation of every connection.
// Session records its host, its ordered member list and the pending join
// requests keyed by code.
//
// Identifiers:
//
// Session identifiers are 12 uppercase alphanumeric characters and join
// request codes are 4. Both are generated with cryptographic randomness and
// regenerated on collision. Lookups are case-insensitive so that humans can
// type them back.
//
// Join Handshake:
//
//	Unaffiliated --RequestJoin--> Requesting --RespondToJoinRequest(accept)--> Member
//	                                         \--RespondToJoinRequest(deny)---> Unaffiliated
//
// A code is removed from the pending map the moment it is answered, so a
// second answer with the same code fails with ErrInvalidJoinRequestCode.
//
// Concurrency:
//
// Store does no locking. The relay service holds a single mutex around every
// Store and connection registry operation.
//
// Usage:
//
//	store := session.NewStore()
//
//	sess := store.Create(hostConnID)
//	req, err := store.RequestJoin(memberConnID, sess.ID)
//	if err != nil {
//		return err
//	}
//	res, err := store.RespondToJoinRequest(hostConnID, req.Code, true)
package session
