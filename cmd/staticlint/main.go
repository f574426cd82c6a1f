// Package main собирает multichecker, которым проверяется код сокращателя ссылок.
//
// Состав проверок:
//
//  1. Анализаторы golang.org/x/tools/go/analysis/passes: nilness, shadow, unreachable,
//     printf, assign, atomic, bools, buildtag, copylocks, lostcancel, httpresponse,
//     errorsas, structtag и unusedresult. lostcancel следит за cancel из context.WithTimeout
//     в graceful shutdown, httpresponse за закрытием тел ответов в тестах.
//  2. Все анализаторы класса SA из staticcheck.io.
//  3. Из класса ST: ST1000 (комментарий пакета), ST1005 (строки ошибок) и ST1012
//     (имена переменных-ошибок, например ErrNotFound).
//  4. Весь класс S (упрощения кода).
//  5. errcheck: непроверенные ошибки.
//  6. noexit: прямой вызов os.Exit в функции main пакета main.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"github.com/kisielk/errcheck/errcheck"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/tempizhere/shortify/cmd/staticlint/noexit"
)

// styleChecks проверки класса ST, включённые в сборку
var styleChecks = map[string]bool{
	"ST1000": true,
	"ST1005": true,
	"ST1012": true,
}

func main() {
	multichecker.Main(analyzers()...)
}

// analyzers возвращает полный набор анализаторов
func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		nilness.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
		printf.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		copylock.Analyzer,
		lostcancel.Analyzer,
		httpresponse.Analyzer,
		errorsas.Analyzer,
		structtag.Analyzer,
		unusedresult.Analyzer,
	}

	list = appendMatching(list, staticcheck.Analyzers, func(string) bool { return true })
	list = appendMatching(list, stylecheck.Analyzers, func(name string) bool { return styleChecks[name] })
	list = appendMatching(list, simple.Analyzers, func(string) bool { return true })

	return append(list, errcheck.Analyzer, noexit.Analyzer)
}

func appendMatching(list []*analysis.Analyzer, from []*lint.Analyzer, keep func(name string) bool) []*analysis.Analyzer {
	for _, a := range from {
		if keep(a.Analyzer.Name) {
			list = append(list, a.Analyzer)
		}
	}
	return list
}
