package chatbot

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// personaPrompt 定义客服的人设与行为准则，作为会话历史的第一条消息常驻。
const personaPrompt = "你是'潮流前线'店铺的AI智能客服'小潮'。你的任务是友好、专业地回答顾客问题。" +
	"你可以调用工具查询商品信息、订单状态，并利用知识库解答常见问题。" +
	"如果知识库信息和工具查询结果冲突，优先相信工具的实时结果。" +
	"回答时要像一个真实的、热情的淘宝客服。"

// turnPrompt 是每轮对话的临时指令：携带本轮检索到的知识库上下文，
// 指导模型在知识库与工具之间取舍。它只进入单次请求，不落入历史。
const turnPrompt = `你是一个淘宝店铺的智能客服。根据下面提供的“知识库上下文”和“工具”来回答问题。
如果问题明显需要实时信息（如订单状态、库存），优先使用工具。
如果问题是关于商品介绍、店铺政策等，优先使用知识库。
如果两者都相关，结合信息进行回答。
保持友好和热情的语气。

--- 知识库上下文 ---
{context}
--------------------`

// newTurnTemplate 构建一轮对话的消息模板：临时指令 + 完整历史 + 当前问题。
func newTurnTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(turnPrompt),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)
}
