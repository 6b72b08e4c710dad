package ai

// IntentSystemPrompt frames the intent classification call.
const IntentSystemPrompt = `你是一个【动漫知识图谱查询解析器】。你只输出 JSON，不输出任何解释。`

// IntentPrompt is filled with the relation schema, the recognized entities
// and the user question.
const IntentPrompt = `
# Task Context
你的任务是解析用户关于动漫知识图谱的问题，识别：
1. 查询模式 query_mode
2. 用户想查询的关系 query_predicate（必须来自给定 schema）
3. 查询主体的实体类型 source_entity_type
4. 期望返回值的类型 result_value_type

# Relation Schema
%s

# Entity Types
Character | Work | Person | Organization | Group | Location

# Recognized Entities
%s

# Rules
- query_mode 只能是 get_property、get_entity、find_relation、unknown 之一。
  * get_property：查询实体的属性（身高、生日、性别等）。
  * get_entity：查询与实体相连的另一个实体（声优、原作者、所属组织等）。
  * find_relation：查询两个实体之间的关系。
  * unknown：无法判断。
- 多个值用 "|" 分隔，例如 "HasFather|HasParent"。
- 不确定的字段填写 "unknown"。
- result_value_type 取实体类型之一，或 Property、Relationship。

# Examples
输入：路飞的声优是谁？
输出：{"query_mode": "get_entity", "query_predicate": "VoiceBy", "source_entity_type": "Character", "result_value_type": "Person"}

输入：路飞和索隆是什么关系？
输出：{"query_mode": "find_relation", "query_predicate": "unknown", "source_entity_type": "Character", "result_value_type": "Relationship"}

输入：咒术回战的原作者是谁？
输出：{"query_mode": "get_entity", "query_predicate": "OriginalAuthor", "source_entity_type": "Work", "result_value_type": "Person"}

输入：五条悟有多高？
输出：{"query_mode": "get_property", "query_predicate": "Height", "source_entity_type": "Character", "result_value_type": "Property"}

# Output Formatting
严格输出一个 JSON 对象，不要多余文字：
{"query_mode": "...", "query_predicate": "...", "source_entity_type": "...", "result_value_type": "..."}

# User Question
"%s"
`

// AnswerSystemPrompt restricts answer synthesis to the supplied evidence. The
// refusal sentence must stay identical to the pipeline's refusal literal.
const AnswerSystemPrompt = `你是一个动漫角色知识问答助手，必须完全基于给定的知识图谱证据回答。
- 只能使用 <证据> 中的信息，不要编造。
- 如果证据不足以回答问题，必须只输出：Cannot answer from known information.
- 回答简洁，使用用户提问的语言。`

// AnswerPrompt is filled with the evidence lines and the user question.
const AnswerPrompt = `<证据>
%s
</证据>
<用户问题>%s</用户问题>`
