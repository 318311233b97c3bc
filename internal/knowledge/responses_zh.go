package knowledge

// Chinese response templates, populated with the site owner's profile
// facts. Written in Traditional Chinese; keyword matching accepts both
// scripts.
var responsesZH = map[string]string{
	TopicIdentity: "您好！我是陳冠穎教授的網站助理。陳冠穎目前是資訊工程學系的副教授，" +
		"研究方向為機器學習在醫學影像上的應用，特別是腦部影像分割與臨床決策支援。" +
		"他在本站分享研究成果、技術文章與開源專案，歡迎透過下方連結進一步瞭解。",

	TopicResearch: "陳教授的研究聚焦於醫學影像分析與機器學習：包括深度學習的腦部 MRI 分割、" +
		"小樣本條件下的模型泛化，以及可解釋的臨床決策支援系統。" +
		"近年的工作多與附設醫院放射科合作，致力於把研究成果落地到臨床流程中。" +
		"詳細內容可以參考研究頁面與發表列表。",

	TopicProjects: "目前維護的主要專案有兩個：NeuroSeg 是開源的腦部影像分割平台，" +
		"提供訓練好的模型與標註工具；OpenCDSS 則是模組化的臨床決策支援框架，" +
		"已在兩家教學醫院試行。兩個專案的原始碼與文件都可以在專案頁面找到。",

	TopicPublications: "陳教授近五年發表了三十餘篇期刊與會議論文，" +
		"主要刊登於 IEEE TMI、Medical Image Analysis 與 MICCAI，" +
		"並持有兩項醫學影像處理相關專利。完整清單（含 PDF 與 BibTeX）請見發表頁面。",

	TopicContact: "與陳教授聯絡最快的方式是電子郵件（見聯絡頁面），" +
		"研究合作或演講邀約請在信中註明主題。辦公室時間為每週三下午，需事先預約。",

	TopicDefault: "感謝您的提問！這個網站收錄了陳冠穎教授的研究介紹、發表論文、" +
		"開源專案與技術部落格。您可以問我關於他的研究方向、專案或論文的問題，" +
		"也可以直接瀏覽首頁的各個欄目。",
}
