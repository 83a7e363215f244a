// Package templates renders the portal HTML views as templ components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "link": true, "meta": true,
}

// el renders tag with attrs given as name/value pairs. A pair with an empty
// name is skipped so optional attributes can be spliced in with attrIf.
func el(tag string, attrs []string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<"+tag); err != nil {
			return err
		}
		for i := 0; i+1 < len(attrs); i += 2 {
			name, value := attrs[i], attrs[i+1]
			if name == "" {
				continue
			}
			if _, err := io.WriteString(w, " "+name+`="`+templ.EscapeString(value)+`"`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		if voidElements[tag] {
			return nil
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// attrs collects name/value pairs.
func attrs(pairs ...string) []string {
	return pairs
}

// attrIf returns the name/value pair when cond holds and a skipped pair
// otherwise.
func attrIf(cond bool, name, value string) []string {
	if !cond {
		return []string{"", ""}
	}
	return []string{name, value}
}

func join(parts ...[]string) []string {
	var out []string
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

// href sanitizes a link target.
func href(target string) string {
	return string(templ.URL(target))
}

// text renders escaped text.
func text(value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}

func group(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func each[T any](items []T, render func(T) templ.Component) templ.Component {
	children := make([]templ.Component, 0, len(items))
	for _, item := range items {
		children = append(children, render(item))
	}
	return group(children...)
}

func when(cond bool, c templ.Component) templ.Component {
	if !cond {
		return nil
	}
	return c
}
