package domain

import "context"

// Message é um e-mail pronto para o provedor.
type Message struct {
	From    string
	To      []string
	Cc      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Content é o que os templates produzem; endereços ficam por conta do gateway.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Provider entrega uma mensagem e retorna o id atribuído pelo provedor.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Renderer monta os dois e-mails de cada envio aceito.
type Renderer interface {
	Confirmation(sub Submission) (Content, error)
	AdminNotification(sub Submission) (Content, error)
}
