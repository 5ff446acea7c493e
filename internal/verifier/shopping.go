package verifier

import "strings"

// 购物任务的计分参数：结账且目标商品齐全拿完成分，
// 商品分按命中比例折算。
const (
	shoppingCompletionScore = 500
	shoppingItemsScore      = 200.0
	shoppingTimeWeight      = 300.0
	shoppingRequiredMetaKey = "required_items"
)

// verifyShopping 校验购物任务。目标商品清单从动作元数据
// required_items（逗号分隔）中读取；完成判定要求结账成功
// 且全部目标商品已加入购物车。
func verifyShopping(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	ok := successful(actions)
	if len(ok) == 0 {
		return invalidResult("no successful actions recorded")
	}

	required := requiredItems(actions)
	checkedOut := false
	for _, action := range ok {
		if action.Type != ActionTypeSubmit && action.Type != ActionTypeDone {
			continue
		}
		if action.Type == ActionTypeDone || strings.Contains(strings.ToLower(action.Target), "checkout") {
			checkedOut = true
			break
		}
	}

	found := 0
	for _, item := range required {
		if itemAdded(ok, item) {
			found++
		}
	}

	completion := 0
	allPresent := len(required) == 0 || found == len(required)
	if checkedOut && allPresent {
		completion = shoppingCompletionScore
	}

	items := 0
	if len(required) > 0 {
		items = roundHalfUp(shoppingItemsScore * float64(found) / float64(len(required)))
	} else if checkedOut {
		items = int(shoppingItemsScore)
	}

	bonus := timeBonus(elapsedMs, maxMs, shoppingTimeWeight)
	score := completion + items + bonus

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"checkoutComplete": checkedOut,
			"requiredItems":    len(required),
			"itemsFound":       found,
			"timeBonus":        bonus,
		},
	}
}

func requiredItems(actions []ActionRecord) []string {
	for _, action := range actions {
		raw, ok := action.Metadata[shoppingRequiredMetaKey]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		items := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				items = append(items, part)
			}
		}
		return items
	}
	return nil
}

func itemAdded(actions []ActionRecord, item string) bool {
	needle := strings.ToLower(item)
	for _, action := range actions {
		if action.Type != ActionTypeClick && action.Type != ActionTypeSelect {
			continue
		}
		if strings.Contains(strings.ToLower(action.Target), needle) ||
			strings.Contains(strings.ToLower(action.Value), needle) {
			return true
		}
	}
	return false
}
