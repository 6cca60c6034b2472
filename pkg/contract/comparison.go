package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 元数据比较算子（metadata / tee / sub-process 共用）。
const (
	CompareLessThan       = "lt"
	CompareLessOrEqual    = "le"
	CompareEqual          = "eq"
	CompareNotEqual       = "ne"
	CompareGreaterOrEqual = "ge"
	CompareGreaterThan    = "gt"
	CompareContains       = "contains"
	CompareMatches        = "matches"
)

// Comparisons: 关系算子（metadata 过滤器）。
var Comparisons = []string{
	CompareLessThan, CompareLessOrEqual, CompareEqual,
	CompareNotEqual, CompareGreaterOrEqual, CompareGreaterThan,
}

// ComparisonsExt: 关系算子 + 子串/正则（tee、sub-process）。
var ComparisonsExt = append(append([]string{}, Comparisons...), CompareContains, CompareMatches)

// ValidComparison 校验算子名；ext 控制是否允许 contains/matches。
func ValidComparison(op string, ext bool) bool {
	set := Comparisons
	if ext {
		set = ComparisonsExt
	}
	for _, c := range set {
		if op == c {
			return true
		}
	}
	return false
}

// CompareValues 以声明的算子比较元数据值 v1 与命令行给定的 v2。
// 强制转换策略（记录于 DESIGN.md）：
// - contains/matches: 双方字符串化；matches 为 Go 正则的 search 语义；
// - 关系算子：双方都可解析为 float64 时做数值比较，否则按字符串字典序；
//   bool 以 "true"/"false" 参与字符串比较。
func CompareValues(v1 any, op string, v2 string) (bool, error) {
	s1 := stringify(v1)
	switch op {
	case CompareContains:
		return strings.Contains(s1, v2), nil
	case CompareMatches:
		re, err := regexp.Compile(v2)
		if err != nil {
			return false, fmt.Errorf("%w: invalid pattern %q: %v", ErrInvalidOption, v2, err)
		}
		return re.MatchString(s1), nil
	}

	if f1, ok1 := toFloat(v1); ok1 {
		if f2, err := strconv.ParseFloat(strings.TrimSpace(v2), 64); err == nil {
			return relate(op, compareFloat(f1, f2))
		}
	}
	return relate(op, strings.Compare(s1, v2))
}

func relate(op string, c int) (bool, error) {
	switch op {
	case CompareLessThan:
		return c < 0, nil
	case CompareLessOrEqual:
		return c <= 0, nil
	case CompareEqual:
		return c == 0, nil
	case CompareNotEqual:
		return c != 0, nil
	case CompareGreaterOrEqual:
		return c >= 0, nil
	case CompareGreaterThan:
		return c > 0, nil
	}
	return false, fmt.Errorf("%w: unhandled comparison %q", ErrInvalidOption, op)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
