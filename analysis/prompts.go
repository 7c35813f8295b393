package analysis

const analysisInstructions = `
Analyze this UML model and answer ONLY with JSON.

Required output structure:
{
  "valid": [
    {
      "relationship": "Short text with the type and tables",
      "reason": "Why it is valid"
    }
  ],
  "errors": [
    {
      "relationship": "Short text with the type and tables",
      "problem": "What is wrong",
      "suggestion": "How to fix it"
    }
  ]
}

Do not write explanations outside the JSON.
Prompt:
%s
`

const validationPreamble = `
You are an expert in database design.
Check whether the relationships of this UML are correct given the class names and attributes.

UML JSON:
%s
`

const createInstructions = `
Convert the following prompt into a valid UML JSON document.
The JSON **must follow exactly** this structure:

{
  "classes": [
    {
      "id": "uuid",
      "name": "ClassName",
      "attributes": [
        {"name": "attribute", "type": "type"}
      ],
      "methods": [
        {"name": "method", "parameters": "", "returnType": ""}
      ]
    }
  ],
  "relationships": [
    {
      "id": "uuid",
      "type": "association | generalization | aggregation | composition | dependency",
      "sourceId": "uuid",
      "targetId": "uuid",
      "labels": ["1..*", "1"]
    }
  ]
}

Use randomly generated UUIDs as 'id'.
Return nothing else, only the JSON.

User prompt:
%s
`

const editInstructions = `
Analyze the following edit prompt and return TWO separate JSON documents inside one object.

The user wants to edit an existing table or relationship. Return:

1. "original": the complete UML model as it currently is, unchanged.
2. "edited": only the modified elements with EXACTLY the requested changes applied.

Response format:
{
  "original": {
    "classes": [
      {
        "id": "uuid",
        "name": "ClassName",
        "attributes": [{"name": "original_attribute", "type": "original_type"}],
        "methods": [{"name": "original_method", "parameters": "", "returnType": ""}]
      }
    ],
    "relationships": [
      {
        "id": "uuid",
        "type": "association | generalization | aggregation | composition | dependency",
        "sourceId": "uuid",
        "targetId": "uuid",
        "labels": ["1..*", "1"]
      }
    ]
  },
  "edited": {
    "classes": [
      {
        "id": "same_id_as_original",
        "name": "ModifiedClassName",
        "attributes": [{"name": "new_attribute", "type": "new_type", "edited": true}],
        "methods": [{"name": "new_method", "parameters": "new_params", "returnType": "new_type", "edited": true}],
        "edited": true
      }
    ],
    "relationships": [
      {
        "id": "same_id_as_original",
        "type": "new_relationship_type",
        "sourceId": "uuid",
        "targetId": "uuid",
        "labels": ["new_label1", "new_label2"],
        "edited": true
      }
    ]
  }
}

Rules:
- Apply EXACTLY the requested changes.
- In "edited" include only the elements that really changed, with their NEW values.
- Use the same UUIDs in both documents for the same entity.
- Mark with "edited": true ONLY the elements that were modified.
- Return nothing else, only the JSON.

User prompt:
%s
`

const imageInstructions = `
Look carefully at the image of a **UML class diagram**.

Identify precisely:
1. The **classes** (rectangles) and their text:
   - Class name
   - Attributes (name:type)
   - Methods (name(parameters):returnType)

2. The **relationships** between classes and the visual symbols at each end of the connector.

Return ONLY JSON with exactly this structure, no explanations:

{
  "nodes": [
    {
      "id": "uuid",
      "name": "ClassName",
      "attributes": [{"name": "attribute", "type": "type"}],
      "methods": [{"name": "method", "parameters": "", "returnType": ""}]
    }
  ],
  "edges_raw": [
    {
      "id": "edge-uuid",
      "sourceName": "SourceClass",
      "targetName": "TargetClass",
      "head": {"shape": "triangle|diamond|none", "fill": "solid|none|unknown", "size": "small|large|unknown"},
      "tail": {"diamond": "none|white|black"},
      "line": {"style": "solid|dashed|unknown"},
      "labels": ["1", "0..*"]
    }
  ]
}
`

// editKeywords mark a chatbot prompt as an edit of an existing model.
var editKeywords = []string{
	"change", "rename", "edit", "modify", "update", "add ", "replace",
	"cambia", "cambies", "cambiar",
	"edita", "edites", "editar",
	"modifica", "modifiques", "modificar",
	"actualiza", "actualices", "actualizar",
	"añade", "añadir",
}
