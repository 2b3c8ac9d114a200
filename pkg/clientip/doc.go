// Package clientip resolves the originating client address of an HTTP request
// sent through reverse proxies.
//
// Headers are checked in order and the first one holding a valid address wins.
// The default order is CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For
// (first valid entry), X-Real-IP. RemoteAddr is the fallback.
//
//	ip := clientip.FromRequest(r)
//
// Behind a different proxy chain, pass the headers it sets:
//
//	ip := clientip.FromRequest(r, "Fly-Client-IP", "X-Forwarded-For")
//
// Only trust headers your proxy overwrites. A client talking to the service
// directly can set any of them.
package clientip
