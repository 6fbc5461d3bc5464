package fetcher

import "fmt"

// TransportError: страница не получена после всех попыток.
// Для обхода это фатально: пустой ответ нельзя принять за конец данных.
type TransportError struct {
	URL        string
	StatusCode int // 0, если ответа не было
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RobotsDisallowedError: URL закрыт robots.txt
type RobotsDisallowedError struct {
	URL string
}

func (e *RobotsDisallowedError) Error() string {
	return fmt.Sprintf("URL disallowed by robots.txt: %s", e.URL)
}
