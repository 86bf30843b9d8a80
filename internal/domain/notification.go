package domain

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a toast-style message for the user. Actions return them
// instead of rendering them.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

func Info(title, desc string) Notification {
	return Notification{Title: title, Description: desc, Variant: VariantDefault}
}

func Alert(title, desc string) Notification {
	return Notification{Title: title, Description: desc, Variant: VariantDestructive}
}
