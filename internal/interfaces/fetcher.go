package interfaces

import "net/http"

//go:generate mockgen -package=mock -source=fetcher.go -destination=mock/fetcher.go

// Fetcher issues a real network request. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}
