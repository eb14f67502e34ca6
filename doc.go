// Package yamdb implements the core of a content-rating API: sign-up with a
// confirmation code delivered out of band, token exchange, role-gated access
// to the catalog (categories, genres, titles) and the review/comment threads
// hanging off each title.
//
// Registration flow:
//   - AuthFlow.SignUp validates the (username, email) pair, reuses an exact
//     match or creates the user, rotates the user's code fingerprint and
//     persists a freshly derived confirmation code before handing it to the
//     configured Notifier.
//   - AuthFlow.ExchangeToken verifies the code against the current
//     fingerprint and mints a signed access token. A code stays valid until
//     the fingerprint changes (a second sign-up, an email change) or the
//     optional TTL elapses.
//
// Authorization:
//   - Decide is a pure function over (actor, resource, action). Services call
//     Authorize before every mutation so the rules can be unit tested without
//     a transport.
//   - ClampRole forces role edits made by a non-superuser admin down to
//     RoleUser instead of rejecting the request.
//
// Ratings:
//   - Title ratings are never stored. RatingAggregator computes the mean score
//     on every read and returns nil when a title has no reviews yet.
package yamdb
