package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/trendfront/shopagent/internal/chatbot"
)

// ConsoleChatUI 是最朴素的命令行问答界面。
type ConsoleChatUI struct {
	In  io.Reader
	Out io.Writer
}

func (u *ConsoleChatUI) Run(ctx context.Context, backend ChatBackend, _ ChatOptions) error {
	in := u.In
	if in == nil {
		return fmt.Errorf("console ui: In is nil")
	}
	out := u.Out
	if out == nil {
		return fmt.Errorf("console ui: Out is nil")
	}

	reader := bufio.NewReader(in)

	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintln(out, "欢迎来到'潮流前线'！我是您的智能客服'小潮'。")
	fmt.Fprintln(out, "您可以问我关于商品、订单的问题，或者输入 'exit' 退出。")
	fmt.Fprintln(out, strings.Repeat("-", 50))

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "小潮: 感谢您的光临，期待下次再见！")
			return nil
		default:
		}

		fmt.Fprint(out, "您: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\n小潮: 感谢您的光临，期待下次再见！")
				return nil
			}
			return fmt.Errorf("读取输入失败: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, "小潮: 感谢您的光临，期待下次再见！")
			return nil
		}

		reply, err := backend.Respond(ctx, line)
		if err != nil {
			// 模型暂时不可用属于可恢复错误，提示后继续对话。
			if errors.Is(err, chatbot.ErrModelUnavailable) {
				fmt.Fprintln(out, "小潮: 抱歉，我这边系统开小差了，请您稍后再试～")
				fmt.Fprintln(out)
				continue
			}
			if errors.Is(err, chatbot.ErrEmptyQuery) {
				continue
			}
			return err
		}

		if strings.TrimSpace(reply) == "" {
			fmt.Fprintln(out, "小潮: (无文本输出)")
		} else {
			fmt.Fprintf(out, "小潮: %s\n", reply)
		}
		fmt.Fprintln(out)
	}
}
