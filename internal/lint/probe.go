package lint

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

func (a *auditor) probeExternal(ctx context.Context, refs []externalRef, opts Options) []Issue {
	sort.Slice(refs, func(i, j int) bool { return refs[i].url < refs[j].url })

	client := a.client
	if client == nil {
		client = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 8
	}
	if workers > len(refs) {
		workers = len(refs)
	}

	jobs := make(chan externalRef)
	var mu sync.Mutex
	var issues []Issue

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				if err := a.probeOne(ctx, client, ref.url, timeout); err != nil {
					mu.Lock()
					issues = append(issues, Issue{
						Kind:     IssueExternalUnreachable,
						Severity: SeverityWarning,
						Source:   ref.source,
						Target:   ref.url,
						Detail:   err.Error(),
					})
					mu.Unlock()
				}
			}
		}()
	}

	for _, ref := range refs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return sortedByTarget(issues)
		case jobs <- ref:
		}
	}
	close(jobs)
	wg.Wait()
	return sortedByTarget(issues)
}

func (a *auditor) probeOne(ctx context.Context, client *http.Client, target string, timeout time.Duration) error {
	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		status, err := a.attempt(reqCtx, client, target)
		if err != nil {
			return err
		}
		switch {
		case status < http.StatusBadRequest:
			return nil
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return fmt.Errorf("status %d", status)
		default:
			return backoff.Permanent(fmt.Errorf("status %d", status))
		}
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(operation, policy)
}

func (a *auditor) attempt(ctx context.Context, client *http.Client, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	// some hosts reject HEAD outright
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		resp, err = client.Do(req)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
	}
	return resp.StatusCode, nil
}

func sortedByTarget(issues []Issue) []Issue {
	sort.Slice(issues, func(i, j int) bool { return issues[i].Target < issues[j].Target })
	return issues
}
