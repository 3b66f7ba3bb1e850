/*
Package metrics exposes Prometheus collectors for the HTTP layer and for
marketplace activity (sign-ups, logins, chat messages, reviews and order
status changes).

Collectors live on a private Registry rather than the global default one so
tests can gather them without interference. Instrument wraps the whole
handler chain and labels requests by a canonical route, for example
/api/providers/:id/reviews, so label cardinality stays bounded.
*/
package metrics
