package orders

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	orderPrefix      = "JAP"
	FirstOrderNumber = "JAP-0001"
)

// NextOrderNumber increments the numeric suffix of the most recently created
// order number. An empty last number starts the sequence.
func NextOrderNumber(last string) (string, error) {
	if last == "" {
		return FirstOrderNumber, nil
	}
	i := strings.LastIndex(last, "-")
	if i < 0 {
		return "", fmt.Errorf("malformed order number %q", last)
	}
	n, err := strconv.Atoi(last[i+1:])
	if err != nil || n < 0 {
		return "", fmt.Errorf("malformed order number %q", last)
	}
	return fmt.Sprintf("%s-%04d", orderPrefix, n+1), nil
}
