// Package i18n resolves the request language and renders portal copy from
// embedded YAML catalogs registered with golang.org/x/text/message.
package i18n
