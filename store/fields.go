package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Mutable field allow-lists. Anything not listed here is rejected by the
// update operations; pk, sk, eventType and attendanceStatus are protected
// by omission.
var (
	eventMutableFields = map[string]struct{}{
		"title":         {},
		"description":   {},
		"from":          {},
		"to":            {},
		"location":      {},
		"assetUrl":      {},
		"trainingUrl":   {},
		"creditNumber":  {},
		"eventSchedule": {},
		"referees":      {},
		"extraInfo":     {},
	}

	registrantMutableFields = map[string]struct{}{
		"firstName":  {},
		"lastName":   {},
		"phone":      {},
		"profession": {},
	}
)

// buildUpdate turns a change set into a SET update expression, appending
// the updatedDate/updatedBy stamp. Change keys are processed in sorted
// order so the expression is deterministic.
func buildUpdate(changes map[string]any, allowed map[string]struct{}, updatedBy string, now time.Time) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(changes) == 0 {
		return "", nil, nil, ErrNoFields
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		if _, ok := allowed[k]; !ok {
			return "", nil, nil, fmt.Errorf("%w: %s", ErrFieldNotAllowed, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	setClauses := make([]string, 0, len(keys)+2)
	exprNames := make(map[string]string, len(keys)+2)
	exprValues := make(map[string]types.AttributeValue, len(keys)+2)

	for i, k := range keys {
		av, err := attributevalue.Marshal(changes[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal %s: %w", k, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}

	exprNames["#updatedDate"] = "updatedDate"
	exprNames["#updatedBy"] = "updatedBy"
	exprValues[":updatedDate"] = &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)}
	exprValues[":updatedBy"] = &types.AttributeValueMemberS{Value: updatedBy}
	setClauses = append(setClauses, "#updatedDate = :updatedDate", "#updatedBy = :updatedBy")

	return "SET " + strings.Join(setClauses, ", "), exprNames, exprValues, nil
}
