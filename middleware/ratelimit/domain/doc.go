// Package domain define contratos e tipos de domínio do gate de admissão
// (rate limit por janela fixa) e do limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas de
// armazenamento. Os backends (memória, Redis, REST) ficam em infra.
package domain
