// Package dynamofake is an in-memory stand-in for the DynamoDB client,
// covering the slice of the API the store uses: conditional puts, update
// expressions with SET/ADD/REMOVE, queries by partition, and two-phase
// transactional writes. Tests use it to exercise conflict behavior without
// a real table.
package dynamofake

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is an in-memory fake DynamoDB client. Safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue

	// BeforeUpdate, when set, runs before each UpdateItem evaluates its
	// condition. Tests use it to lose compare-and-swap races on purpose.
	BeforeUpdate func()
}

// New creates an empty fake client.
func New() *Client {
	return &Client{tables: make(map[string]map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk, _ := item["pk"].(*types.AttributeValueMemberS)
	sk, _ := item["sk"].(*types.AttributeValueMemberS)
	var p, s string
	if pk != nil {
		p = pk.Value
	}
	if sk != nil {
		s = sk.Value
	}
	return p + "\x00" + s
}

func (c *Client) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := c.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		c.tables[name] = t
	}
	return t
}

// Seed inserts an item directly, bypassing conditions.
func (c *Client) Seed(table string, item map[string]types.AttributeValue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table(table)[itemKey(item)] = copyItem(item)
}

// Item returns a stored item by key, or nil.
func (c *Client) Item(table, pk, sk string) map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.table(table)[pk+"\x00"+sk]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Len returns the number of items in a table.
func (c *Client) Len(table string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table(table))
}

// GetItem implements the DynamoDB GetItem call.
func (c *Client) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.table(*params.TableName)[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

// PutItem implements the DynamoDB PutItem call with condition support.
func (c *Client) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.table(*params.TableName)
	existing := t[itemKey(params.Item)]

	if params.ConditionExpression != nil {
		ok, err := evalCondition(*params.ConditionExpression, existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	t[itemKey(params.Item)] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem implements the DynamoDB UpdateItem call with condition and
// update-expression support.
func (c *Client) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if c.BeforeUpdate != nil {
		c.BeforeUpdate()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.table(*params.TableName)
	key := itemKey(params.Key)
	existing := t[key]

	if params.ConditionExpression != nil {
		ok, err := evalCondition(*params.ConditionExpression, existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	item := copyItem(existing)
	if item == nil {
		item = copyItem(params.Key)
	}
	if err := applyUpdate(item, aws.ToString(params.UpdateExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	t[key] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

// Query implements the DynamoDB Query call for pk equality with an
// optional begins_with(sk, ...) clause. Everything fits in one page.
func (c *Client) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pkAttr, ok := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("dynamofake: query missing :pk")
	}
	var prefix string
	if v, ok := params.ExpressionAttributeValues[":skprefix"].(*types.AttributeValueMemberS); ok {
		prefix = v.Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range c.table(*params.TableName) {
		pk, _ := item["pk"].(*types.AttributeValueMemberS)
		if pk == nil || pk.Value != pkAttr.Value {
			continue
		}
		if prefix != "" {
			sk, _ := item["sk"].(*types.AttributeValueMemberS)
			if sk == nil || !strings.HasPrefix(sk.Value, prefix) {
				continue
			}
		}
		items = append(items, copyItem(item))
	}

	sort.Slice(items, func(i, j int) bool {
		si, _ := items[i]["sk"].(*types.AttributeValueMemberS)
		sj, _ := items[j]["sk"].(*types.AttributeValueMemberS)
		return si.Value < sj.Value
	})
	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

// TransactWriteItems implements the two-phase transactional write: every
// condition is checked first, and nothing applies unless all pass.
func (c *Client) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false

	for i, op := range params.TransactItems {
		ok, err := c.checkTransactItem(op)
		if err != nil {
			return nil, err
		}
		if !ok {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		} else {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
		}
	}

	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, op := range params.TransactItems {
		if err := c.applyTransactItem(op); err != nil {
			return nil, err
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (c *Client) checkTransactItem(op types.TransactWriteItem) (bool, error) {
	switch {
	case op.Put != nil:
		existing := c.table(*op.Put.TableName)[itemKey(op.Put.Item)]
		if op.Put.ConditionExpression == nil {
			return true, nil
		}
		return evalCondition(*op.Put.ConditionExpression, existing, op.Put.ExpressionAttributeNames, op.Put.ExpressionAttributeValues)
	case op.Update != nil:
		existing := c.table(*op.Update.TableName)[itemKey(op.Update.Key)]
		if op.Update.ConditionExpression == nil {
			return true, nil
		}
		return evalCondition(*op.Update.ConditionExpression, existing, op.Update.ExpressionAttributeNames, op.Update.ExpressionAttributeValues)
	case op.Delete != nil:
		existing := c.table(*op.Delete.TableName)[itemKey(op.Delete.Key)]
		if op.Delete.ConditionExpression == nil {
			return true, nil
		}
		return evalCondition(*op.Delete.ConditionExpression, existing, op.Delete.ExpressionAttributeNames, op.Delete.ExpressionAttributeValues)
	}
	return false, fmt.Errorf("dynamofake: empty transact item")
}

func (c *Client) applyTransactItem(op types.TransactWriteItem) error {
	switch {
	case op.Put != nil:
		c.table(*op.Put.TableName)[itemKey(op.Put.Item)] = copyItem(op.Put.Item)
		return nil
	case op.Update != nil:
		t := c.table(*op.Update.TableName)
		key := itemKey(op.Update.Key)
		item := copyItem(t[key])
		if item == nil {
			item = copyItem(op.Update.Key)
		}
		if err := applyUpdate(item, aws.ToString(op.Update.UpdateExpression), op.Update.ExpressionAttributeNames, op.Update.ExpressionAttributeValues); err != nil {
			return err
		}
		t[key] = item
		return nil
	case op.Delete != nil:
		delete(c.table(*op.Delete.TableName), itemKey(op.Delete.Key))
		return nil
	}
	return fmt.Errorf("dynamofake: empty transact item")
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if m, ok := v.(*types.AttributeValueMemberM); ok {
			out[k] = &types.AttributeValueMemberM{Value: copyItem(m.Value)}
			continue
		}
		out[k] = v
	}
	return out
}

// --- expression evaluation ---

// resolvePath substitutes #name placeholders and splits on "." into a
// nested attribute path.
func resolvePath(expr string, names map[string]string) []string {
	segments := strings.Split(expr, ".")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "#") {
			if real, ok := names[seg]; ok {
				segments[i] = real
			}
		}
	}
	return segments
}

func lookupPath(item map[string]types.AttributeValue, path []string) (types.AttributeValue, bool) {
	if item == nil {
		return nil, false
	}
	current := item
	for i, seg := range path {
		v, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		m, ok := v.(*types.AttributeValueMemberM)
		if !ok {
			return nil, false
		}
		current = m.Value
	}
	return nil, false
}

func setPath(item map[string]types.AttributeValue, path []string, value types.AttributeValue) {
	current := item
	for i, seg := range path {
		if i == len(path)-1 {
			current[seg] = value
			return
		}
		m, ok := current[seg].(*types.AttributeValueMemberM)
		if !ok {
			m = &types.AttributeValueMemberM{Value: make(map[string]types.AttributeValue)}
			current[seg] = m
		}
		current = m.Value
	}
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		an, aerr := strconv.ParseFloat(av.Value, 64)
		bn, berr := strconv.ParseFloat(bv.Value, 64)
		return aerr == nil && berr == nil && an == bn
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	}
	return false
}

// evalCondition handles the condition grammar the store emits:
// conjunctions of attribute_exists(p), attribute_not_exists(p), and
// "p = :val".
func evalCondition(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (bool, error) {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_not_exists(") && strings.HasSuffix(clause, ")"):
			path := resolvePath(clause[len("attribute_not_exists("):len(clause)-1], names)
			if _, ok := lookupPath(item, path); ok {
				return false, nil
			}
		case strings.HasPrefix(clause, "attribute_exists(") && strings.HasSuffix(clause, ")"):
			path := resolvePath(clause[len("attribute_exists("):len(clause)-1], names)
			if _, ok := lookupPath(item, path); !ok {
				return false, nil
			}
		case strings.Contains(clause, " = "):
			left, right, _ := strings.Cut(clause, " = ")
			want, ok := values[strings.TrimSpace(right)]
			if !ok {
				return false, fmt.Errorf("dynamofake: unbound value %q", right)
			}
			got, ok := lookupPath(item, resolvePath(strings.TrimSpace(left), names))
			if !ok || !attrEqual(got, want) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("dynamofake: unsupported condition clause %q", clause)
		}
	}
	return true, nil
}

// applyUpdate handles the update grammar the store emits: SET assignments,
// ADD numeric increments, and REMOVE of attribute paths.
func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	for _, section := range splitSections(expr) {
		verb, rest, _ := strings.Cut(section, " ")
		switch verb {
		case "SET":
			for _, assign := range strings.Split(rest, ", ") {
				left, right, ok := strings.Cut(assign, " = ")
				if !ok {
					return fmt.Errorf("dynamofake: bad SET clause %q", assign)
				}
				value, bound := values[strings.TrimSpace(right)]
				if !bound {
					return fmt.Errorf("dynamofake: unbound value %q", right)
				}
				setPath(item, resolvePath(strings.TrimSpace(left), names), value)
			}
		case "ADD":
			for _, clause := range strings.Split(rest, ", ") {
				left, right, ok := strings.Cut(clause, " ")
				if !ok {
					return fmt.Errorf("dynamofake: bad ADD clause %q", clause)
				}
				delta, bound := values[strings.TrimSpace(right)].(*types.AttributeValueMemberN)
				if !bound {
					return fmt.Errorf("dynamofake: ADD needs a numeric value in %q", clause)
				}
				path := resolvePath(strings.TrimSpace(left), names)
				current := 0.0
				if existing, ok := lookupPath(item, path); ok {
					if n, ok := existing.(*types.AttributeValueMemberN); ok {
						current, _ = strconv.ParseFloat(n.Value, 64)
					}
				}
				d, _ := strconv.ParseFloat(delta.Value, 64)
				setPath(item, path, &types.AttributeValueMemberN{Value: strconv.FormatFloat(current+d, 'f', -1, 64)})
			}
		case "REMOVE":
			for _, clause := range strings.Split(rest, ", ") {
				path := resolvePath(strings.TrimSpace(clause), names)
				if len(path) == 1 {
					delete(item, path[0])
				}
			}
		default:
			return fmt.Errorf("dynamofake: unsupported update section %q", section)
		}
	}
	return nil
}

// splitSections splits "SET a = :v ADD b :w REMOVE c" into its verb
// sections while keeping each verb attached to its clauses.
func splitSections(expr string) []string {
	var sections []string
	rest := strings.TrimSpace(expr)
	for rest != "" {
		next := len(rest)
		for _, verb := range []string{" SET ", " ADD ", " REMOVE "} {
			if idx := strings.Index(rest[1:], verb); idx >= 0 && idx+1 < next {
				next = idx + 1
			}
		}
		sections = append(sections, strings.TrimSpace(rest[:next]))
		rest = strings.TrimSpace(rest[next:])
	}
	return sections
}
