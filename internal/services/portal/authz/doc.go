// Package authz resolves role authority for portal accounts.
//
// Every role comparison in the portal goes through this package: rank
// ordering, which roles an actor may assign, and whether an actor may edit
// or delete another account. Functions are pure and total; callers receive
// a Decision carrying a stable reason code for logs, metrics and inline UI
// messages.
package authz
