package cache

import "fmt"

// ResultKey is the cache key for a job's stored analysis result
func ResultKey(jobID string) string {
	return fmt.Sprintf("result:%s", jobID)
}
