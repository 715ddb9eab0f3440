// Package application contém os casos de uso do gateway de contato.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Gateway.SendContactEmail(sub) sempre retorna um domain.Result;
// Service.Decide(key) retorna a decisão do throttle da borda.
package application
