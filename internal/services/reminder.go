package services

import (
	"fmt"
	"strings"
)

const reminderDateLayout = "02/01/2006"

// ReminderText renders the collection message sent to a client for a due item.
func ReminderText(item DueItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s, tudo bem?", item.ClientName)
	b.WriteString(" Passando para lembrar da parcela ")
	b.WriteString(item.InstallmentLabel())
	if item.Description != "" {
		fmt.Fprintf(&b, " referente a %s", item.Description)
	}
	if item.InstallmentAmount.Cents > 0 {
		fmt.Fprintf(&b, ", no valor de %s", item.InstallmentAmount.BRL())
	}
	due := item.Schedule.NextDueDate.Format(reminderDateLayout)
	switch item.Schedule.Status {
	case Overdue:
		fmt.Fprintf(&b, ", que venceu em %s.", due)
	case DueToday:
		b.WriteString(", que vence hoje.")
	default:
		if item.Schedule.NextDueDate.IsEmpty() {
			b.WriteString(".")
		} else {
			fmt.Fprintf(&b, ", com vencimento em %s.", due)
		}
	}
	return b.String()
}
