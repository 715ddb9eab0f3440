// Package domain define os tipos e contratos do gateway de e-mail de contato.
//
// Este pacote não depende de net/http, Redis nem do provedor de e-mail.
// A intenção é permitir testes de unidade puros e desacoplar a orquestração
// (application) dos detalhes de infraestrutura (infra).
package domain
