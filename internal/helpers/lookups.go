package helpers

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/dfid/devtracker-site/internal/pages"
	"github.com/dfid/devtracker-site/internal/store"
)

// IATI activity status codelist.
var activityStatuses = map[int]string{
	1: "Pipeline/identification",
	2: "Implementation",
	3: "Completion",
	4: "Post-completion",
	5: "Cancelled",
	6: "Suspended",
}

// IATI transaction types, both the legacy letter codes and the numeric list.
var transactionTypes = map[string]string{
	"C":  "Commitment",
	"D":  "Disbursement",
	"E":  "Expenditure",
	"IF": "Incoming Funds",
	"IR": "Interest Repayment",
	"LR": "Loan Repayment",
	"R":  "Reimbursement",
	"QP": "Purchase of Equity",
	"QS": "Sale of Equity",
	"CG": "Credit Guarantee",
	"1":  "Incoming Funds",
	"2":  "Outgoing Commitment",
	"3":  "Disbursement",
	"4":  "Expenditure",
	"5":  "Interest Payment",
	"6":  "Loan Repayment",
	"7":  "Reimbursement",
	"8":  "Purchase of Equity",
	"9":  "Sale of Equity",
	"10": "Credit Guarantee",
	"11": "Incoming Commitment",
}

// Lookups returns codelist and project link helpers.
func Lookups() template.FuncMap {
	return template.FuncMap{
		"activityStatus":   ActivityStatus,
		"transactionType":  TransactionType,
		"projectPath":      func(id any) string { return prettyPath(pages.ProjectPath(codeOf(id))) },
		"documentsPath":    func(id any) string { return prettyPath(pages.DocumentsPath(codeOf(id))) },
		"transactionsPath": func(id any) string { return prettyPath(pages.TransactionsPath(codeOf(id))) },
		"partnersPath":     func(id any) string { return prettyPath(pages.PartnersPath(codeOf(id))) },
	}
}

// ActivityStatus names an IATI activity status code. Unknown codes render as "".
func ActivityStatus(code any) string {
	f, ok := store.AsFloat(code)
	if !ok {
		return ""
	}
	return activityStatuses[int(f)]
}

// TransactionType names an IATI transaction type, echoing unknown codes.
func TransactionType(code any) string {
	var key string
	switch c := code.(type) {
	case string:
		key = strings.ToUpper(strings.TrimSpace(c))
	case nil:
		return ""
	default:
		f, ok := store.AsFloat(c)
		if !ok {
			return ""
		}
		key = strconv.Itoa(int(f))
	}
	if name, ok := transactionTypes[key]; ok {
		return name
	}
	return key
}
