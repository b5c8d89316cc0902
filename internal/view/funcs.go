package view

import (
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var funcs = template.FuncMap{
	// price renders 1200 as "1,200".
	"price":   func(n int) string { return printer.Sprintf("%d", n) },
	"stars":   stars,
	"isOwner": isOwner,
	"date":    func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"year":    func() int { return time.Now().Year() },
}
