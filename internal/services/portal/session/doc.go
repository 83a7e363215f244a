// Package session owns authenticated portal sessions.
//
// A session binds one principal to the router's latest view. Sessions are
// held in process and referenced by signed tokens; a principal may hold
// several sessions at once.
package session
