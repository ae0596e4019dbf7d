package analysis

import (
	"strings"

	"github.com/lithammer/dedent"
)

// Prompt is the fixed instruction sent with every image. Both the instruction
// and the expected answer are in Brazilian Portuguese.
var Prompt = strings.TrimSpace(dedent.Dedent(`
	Execute uma análise em duas etapas. Primeiro, atue como um moderador de conteúdo e determine se a imagem contém conteúdo sensível (violência explícita, sangue, ferimentos graves, cortes, automutilação). Responda com um campo booleano 'isSensitive'.
	Independentemente do resultado da primeira etapa, prossiga para a segunda etapa. Na segunda etapa, descreva detalhadamente tudo que você vê na imagem. Analise objetos, cores, emoções e o contexto geral. Forneça a resposta em um formato JSON estruturado com os seguintes campos: 'description' (uma descrição geral), 'identifiedObjects' (um array de strings listando objetos chave) e 'keyInsights' (um array de strings com percepções importantes).
	Importante: toda a resposta, incluindo os valores dentro do JSON, deve ser em português do Brasil.
`))

// Field names of the requested response object.
const (
	FieldIsSensitive       = "isSensitive"
	FieldDescription       = "description"
	FieldIdentifiedObjects = "identifiedObjects"
	FieldKeyInsights       = "keyInsights"
)

// ResponseFields lists the four fields in the order they are declared.
var ResponseFields = []string{FieldIsSensitive, FieldDescription, FieldIdentifiedObjects, FieldKeyInsights}
