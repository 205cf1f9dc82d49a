// Package application contém os casos de uso (regras de aplicação) do gate de
// admissão e do limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, policy, key) consome o contador e retorna uma
// Decision (allow/deny, resultado para headers, erro em fail-open).
package application
