// Package session drives the isolated browsing sessions of a scan and
// records their traffic.
//
// A scan runs one session per SignalConfig, all concurrent with respect
// to each other. Within a session, pages are visited strictly in
// itinerary order so the page-load timeline stays deterministic for
// temporal-leak windows. Sessions never share cookies, storage, or
// clients: each gets its own Driver built fresh from the factory.
//
// The Driver interface isolates navigation mechanics from the runner.
// The bundled HTTP driver fetches pages with net/http, parses them with
// golang.org/x/net/html to find consent banners, opt-out links, and
// third-party subresources, and replays those subresource fetches under
// the session's signal headers so the recorder can observe them.
//
// Failure policy: a failed page is logged and skipped, never fatal to
// its session. A session that exhausts its total timeout is marked
// aborted with all already-captured data preserved. A session whose
// every page fails still returns a valid, empty log.
package session
