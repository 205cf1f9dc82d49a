// Package ratelimit fornece adapters HTTP (net/http) do gate de admissão por
// janela fixa e do limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (consumo + decisão, acquire/timeout) sem net/http
//   - infra: backends concretos (memória, Redis, REST), stats, semáforo
//   - ratelimit (este pacote): middlewares HTTP, extração de chave, headers e
//     respostas JSON, políticas pré-definidas das rotas do coach
//
// Fluxo por requisição:
//
//  1. Extrai a chave do cliente (primeiro IP do X-Forwarded-For ou RemoteAddr)
//  2. Consome o contador "bucket:chave" no store
//  3. Seta X-RateLimit-Limit/Remaining/Reset
//  4. Se estourou, responde 429 com Retry-After e {"success":false,"message":...}
//  5. Se o store falhar, deixa passar sem headers (fail-open) e loga
//
// O binário cmd/gateway monta tudo isso na frente da API via reverse proxy.
package ratelimit
