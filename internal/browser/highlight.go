package browser

import (
	"encoding/json"
	"fmt"
)

// highlightFunc обводит элемент рамкой перед взаимодействием.
// Возвращает false, если элемент не найден.
const highlightFunc = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) { return false; }
	el.style.outline = '2px solid #ff3366';
	el.style.outlineOffset = '2px';
	setTimeout(() => { el.style.outline = ''; el.style.outlineOffset = ''; }, 1500);
	return true;
}`

// highlightExpr возвращает выражение вызова highlightFunc для селектора.
func highlightExpr(selector string) string {
	arg, _ := json.Marshal(selector)
	return fmt.Sprintf("(%s)(%s)", highlightFunc, arg)
}

// scrollExpr возвращает выражение прокрутки на dy пикселей.
func scrollExpr(dy int) string {
	return fmt.Sprintf("window.scrollBy(0, %d)", dy)
}
