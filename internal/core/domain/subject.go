package domain

import "strings"

// Subject is the heuristic academic classification of input material.
type Subject string

// Known subjects. SubjectGeneral is the fallback when no keyword hits.
const (
	SubjectCode        Subject = "code"
	SubjectMath        Subject = "math"
	SubjectPhysics     Subject = "physics"
	SubjectChemistry   Subject = "chemistry"
	SubjectEngineering Subject = "engineering"
	SubjectTheory      Subject = "theory"
	SubjectGeneral     Subject = "general"
)

// subjectKeywords pairs a subject with its trigger keywords. Slice order
// is the tie-break priority: the first subject with any case-insensitive
// substring hit wins, so the order must not be reshuffled.
var subjectKeywords = []struct {
	Subject  Subject
	Keywords []string
}{
	{SubjectCode, []string{"def ", "class ", "import ", "{", "}", "function", "程序", "代码", "编程"}},
	{SubjectMath, []string{"公式", "定理", "证明", "方程", "函数", "微积分", "matrix", "theorem"}},
	{SubjectPhysics, []string{"力学", "电磁", "量子", "热力学", "波动", "newton", "einstein"}},
	{SubjectChemistry, []string{"化学式", "分子", "反应", "酸碱", "化合物", "reaction"}},
	{SubjectEngineering, []string{"电路", "结构", "控制系统", "机械", "材料力学"}},
	{SubjectTheory, []string{"概念", "定义", "章节", "理论", "原理", "模型"}},
}

// DetectSubject classifies text by first-match keyword scan over the
// fixed priority table. Pure function: identical input yields identical
// output. Returns SubjectGeneral when nothing matches.
func DetectSubject(text string) Subject {
	lower := strings.ToLower(text)
	for _, entry := range subjectKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry.Subject
			}
		}
	}
	return SubjectGeneral
}
